package action

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Transformers is the stock set of named, pure capture transformers a rule
// may reference by name in its transformers map.
var Transformers = map[string]func(string) string{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

type templateSegment struct {
	literal     string
	placeholder string
}

var templateCache sync.Map // string -> []templateSegment
var templateWarnOnce sync.Map

func compileTemplate(tpl string) ([]templateSegment, error) {
	var segs []templateSegment
	var lit strings.Builder
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		if c == '{' {
			end := strings.IndexByte(tpl[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder in template %q", tpl)
			}
			if lit.Len() > 0 {
				segs = append(segs, templateSegment{literal: lit.String()})
				lit.Reset()
			}
			name := tpl[i+1 : i+end]
			segs = append(segs, templateSegment{placeholder: name})
			i += end
			continue
		}
		lit.WriteByte(c)
	}
	if lit.Len() > 0 {
		segs = append(segs, templateSegment{literal: lit.String()})
	}
	return segs, nil
}

func getCompiledTemplate(tpl string) ([]templateSegment, error) {
	if v, ok := templateCache.Load(tpl); ok {
		return v.([]templateSegment), nil
	}
	segs, err := compileTemplate(tpl)
	if err != nil {
		if _, loaded := templateWarnOnce.LoadOrStore(tpl, struct{}{}); !loaded {
			log.WithFields(log.Fields{"template": tpl, "error": err}).Error("target template malformed, rendered as empty string")
		}
		return nil, err
	}
	templateCache.Store(tpl, segs)
	return segs, nil
}

// RenderTemplate substitutes each "{name}" placeholder in tpl with the
// corresponding value from captures (missing captures render as ""), and
// is the module's concrete implementation of the opaque
// render(template, captures, transformers) function referenced by the
// action composer.
func RenderTemplate(tpl string, captures map[string]string) (string, error) {
	segs, err := getCompiledTemplate(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range segs {
		if s.placeholder != "" {
			b.WriteString(captures[s.placeholder])
		} else {
			b.WriteString(s.literal)
		}
	}
	return b.String(), nil
}
