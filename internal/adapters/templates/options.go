package templates

import "html/template"

// Option configures a Set.
type Option func(*Set)

// WithLive makes every render re-read its sources instead of using the preloaded set.
func WithLive(live bool) Option {
	return func(s *Set) {
		s.live = live
	}
}

// WithFuncs adds template functions. Later entries override defaults with the same name.
func WithFuncs(funcs template.FuncMap) Option {
	return func(s *Set) {
		for k, v := range funcs {
			s.funcs[k] = v
		}
	}
}
