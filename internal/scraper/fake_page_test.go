package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type fakePage struct {
	mu sync.Mutex

	// text served by BodyText, keyed by the last URL visited; "" is the fallback.
	texts   map[string]string
	gotoErr map[string]error

	// evaluate responses keyed by a substring of the expression.
	evals map[string]any

	url       string
	urlAfter  string
	filled    map[string]string
	visited   []string
	bodyErr   error
	evaluated []string
}

func newFakePage() *fakePage {
	return &fakePage{
		texts:   map[string]string{},
		gotoErr: map[string]error{},
		evals:   map[string]any{},
		filled:  map[string]string{},
	}
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	for k, err := range p.gotoErr {
		if strings.Contains(url, k) {
			return err
		}
	}
	p.url = url
	return nil
}

func (p *fakePage) Fill(_ context.Context, selector string, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filled[selector] = value
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, expr string, out any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated = append(p.evaluated, expr)
	for k, v := range p.evals {
		if !strings.Contains(expr, k) {
			continue
		}
		if err, ok := v.(error); ok {
			return err
		}
		switch o := out.(type) {
		case *bool:
			*o = v.(bool)
			if *o && p.urlAfter != "" {
				p.url = p.urlAfter
			}
		case *[]byte:
			*o = []byte(v.(string))
		default:
			b, _ := json.Marshal(v)
			return json.Unmarshal(b, out)
		}
		return nil
	}
	return fmt.Errorf("unexpected expression")
}

func (p *fakePage) BodyText(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bodyErr != nil {
		return "", p.bodyErr
	}
	for k, v := range p.texts {
		if k != "" && strings.Contains(p.url, k) {
			return v, nil
		}
	}
	return p.texts[""], nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func noSleep(context.Context, time.Duration) error { return nil }
