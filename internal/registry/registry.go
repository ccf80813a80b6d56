package registry

import (
	"strings"

	"traffic-insight/internal/models"

	"go.uber.org/zap"
)

// Match is a successful resolution of a free-text query to an area.
// Exact is true when the normalized query equals the matched alias, as
// opposed to merely containing it.
type Match struct {
	Area  models.Area
	Alias string
	Exact bool
}

// Registry holds the static table of monitored areas. Resolution searches
// alias sets with a longest-match policy so that a short alias can never
// shadow a more specific one.
type Registry struct {
	areas  []models.Area
	logger *zap.Logger
}

// New builds a registry from the default Bangalore area table.
func New(logger *zap.Logger) *Registry {
	return NewWithAreas(defaultAreas(), logger)
}

// NewWithAreas builds a registry from an explicit area table. Registration
// order is significant: it breaks ties between equal-length alias matches.
func NewWithAreas(areas []models.Area, logger *zap.Logger) *Registry {
	r := &Registry{areas: areas, logger: logger}
	logger.Info("Area registry loaded", zap.Int("areas", len(areas)))
	return r
}

// Resolve maps a free-text query to an area. The second return value is
// false when no alias matches; that is a normal outcome, not an error.
func (r *Registry) Resolve(query string) (Match, bool) {
	norm := Normalize(query)
	if norm == "" {
		return Match{}, false
	}

	padded := " " + norm + " "
	var best Match
	bestLen := 0

	for _, area := range r.areas {
		for _, alias := range area.Aliases {
			a := Normalize(alias)
			if a == "" {
				continue
			}
			var exact bool
			switch {
			case norm == a:
				exact = true
			case strings.Contains(padded, " "+a+" "):
				exact = false
			default:
				continue
			}
			// Longest alias wins; earlier registration wins ties.
			if len(a) > bestLen {
				best = Match{Area: area, Alias: a, Exact: exact}
				bestLen = len(a)
			}
		}
	}

	if bestLen == 0 {
		r.logger.Debug("No area matched query", zap.String("query", query))
		return Match{}, false
	}
	return best, true
}

// Areas returns the full area table in registration order.
func (r *Registry) Areas() []models.Area {
	return r.areas
}

// Names returns the registered area names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.areas))
	for _, a := range r.areas {
		names = append(names, a.Name)
	}
	return names
}

// Lookup finds an area whose name or alias equals the given reference,
// used for direct path-parameter lookups that bypass free-text extraction.
func (r *Registry) Lookup(name string) (Match, bool) {
	norm := Normalize(name)
	if norm == "" {
		return Match{}, false
	}
	for _, area := range r.areas {
		if Normalize(area.Name) == norm {
			return Match{Area: area, Alias: norm, Exact: true}, true
		}
		for _, alias := range area.Aliases {
			if Normalize(alias) == norm {
				return Match{Area: area, Alias: norm, Exact: true}, true
			}
		}
	}
	return Match{}, false
}

// Normalize lowercases a reference and strips punctuation so that
// "M.G. Road", "mg-road" and "MG road" all compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
