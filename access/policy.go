package access

import (
	"slices"
	"strings"
	"unicode"

	"github.com/consorcioci/viernes/internal/util"
)

// TokenRule assigns Role to any normalized title that contains every one of
// Tokens, in any order. Rules are checked before the exact title table.
type TokenRule struct {
	Tokens []string
	Role   Role
}

// Policy is the data that decides what a user may see: the title table, the
// token rules, the tab allow-lists and the permission sets. A Policy is
// immutable after construction and safe for concurrent use.
type Policy struct {
	titles      map[string]Role
	rules       []TokenRule
	tabs        map[string][]Role
	permissions map[Role][]Permission
}

// PolicyOption customizes a Policy built by NewPolicy.
type PolicyOption func(*Policy)

// WithTitles replaces the title table. Keys are normalized with
// NormalizeTitle; entries with an invalid role are ignored.
func WithTitles(titles map[string]Role) PolicyOption {
	return func(p *Policy) {
		p.titles = make(map[string]Role, len(titles))
		for title, role := range titles {
			if role.Valid() {
				p.titles[NormalizeTitle(title)] = role
			}
		}
	}
}

// WithRules replaces the token rules.
func WithRules(rules ...TokenRule) PolicyOption {
	return func(p *Policy) {
		p.rules = p.rules[:0]
		for _, r := range rules {
			if !r.Role.Valid() || len(r.Tokens) == 0 {
				continue
			}
			tokens := make([]string, 0, len(r.Tokens))
			for _, tok := range r.Tokens {
				if n := NormalizeTitle(tok); n != "" {
					tokens = append(tokens, n)
				}
			}
			if len(tokens) > 0 {
				p.rules = append(p.rules, TokenRule{Tokens: tokens, Role: r.Role})
			}
		}
	}
}

// WithTabs replaces the tab allow-lists.
func WithTabs(tabs map[string][]Role) PolicyOption {
	return func(p *Policy) {
		p.tabs = make(map[string][]Role, len(tabs))
		for tab, roles := range tabs {
			p.tabs[tab] = validRoles(roles)
		}
	}
}

// WithPermissions replaces the per-role permission sets.
func WithPermissions(perms map[Role][]Permission) PolicyOption {
	return func(p *Policy) {
		p.permissions = make(map[Role][]Permission, len(perms))
		for role, list := range perms {
			if role.Valid() {
				p.permissions[role] = slices.Clone(list)
			}
		}
	}
}

// NewPolicy returns the portal's default policy with opts applied.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{}
	WithTitles(map[string]Role{
		"TECNOLOGO CGO":         RoleAdmin,
		"TECNÓLOGO(Supervísor)": RoleSupervisor,
		"PROFESIONAL 3 CALIDAD": RoleProCalidad,
		"PROFESIONAL":           RoleProfesional,
	})(p)
	WithRules(TokenRule{Tokens: []string{"TECNOLOGO", "SUPERVISOR"}, Role: RoleSupervisor})(p)
	WithTabs(defaultTabs())(p)
	WithPermissions(defaultPermissions())(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPolicy = NewPolicy()

// DefaultPolicy returns the shared default policy.
func DefaultPolicy() *Policy { return defaultPolicy }

// DeriveRole maps cargo to a role using the default policy.
func DeriveRole(cargo string) Role { return defaultPolicy.DeriveRole(cargo) }

// NormalizeTitle folds diacritics, upper-cases, turns punctuation into
// spaces and collapses whitespace: "Tecnólogo (Supervisor)" becomes
// "TECNOLOGO SUPERVISOR".
func NormalizeTitle(s string) string {
	s = strings.ToUpper(util.FoldDiacritics(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// DeriveRole returns the role for a free-text job title. It never fails:
// titles that match nothing get LowestRole.
func (p *Policy) DeriveRole(cargo string) Role {
	key := NormalizeTitle(cargo)
	if key == "" {
		return LowestRole
	}
	compact := strings.ReplaceAll(key, " ", "")
	for _, rule := range p.rules {
		if containsAll(compact, rule.Tokens) {
			return rule.Role
		}
	}
	if role, ok := p.titles[key]; ok {
		return role
	}
	return LowestRole
}

func containsAll(s string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(s, strings.ReplaceAll(tok, " ", "")) {
			return false
		}
	}
	return true
}

// Tabs returns every tab the policy knows, sorted by id.
func (p *Policy) Tabs() []string {
	ids := make([]string, 0, len(p.tabs))
	for id := range p.tabs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AllowedRoles returns the allow-list for tab. Unknown tabs have none.
func (p *Policy) AllowedRoles(tab string) []Role {
	return slices.Clone(p.tabs[tab])
}

// CanAccessTab reports whether role may open tab. Unknown tabs are denied
// for every role.
func (p *Policy) CanAccessTab(role Role, tab string) bool {
	return slices.Contains(p.tabs[tab], role)
}

// VisibleTabs filters tabs down to those role may open, keeping order.
func (p *Policy) VisibleTabs(role Role, tabs []MenuTab) []MenuTab {
	out := make([]MenuTab, 0, len(tabs))
	for _, t := range tabs {
		if p.CanAccessTab(role, t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// HasPermission reports whether role carries perm.
func (p *Policy) HasPermission(role Role, perm Permission) bool {
	return slices.Contains(p.permissions[role], perm)
}

func validRoles(roles []Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r.Valid() && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
