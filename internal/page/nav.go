package page

import (
	"strings"

	"autoshop/internal/domain"
	"autoshop/internal/policy"
	"autoshop/internal/route"
)

type NavLink struct {
	Path string     `json:"path"`
	Page route.Page `json:"page"`
}

// Navigation lists the dashboard pages user may open. Detail routes are left
// out.
func Navigation(user *domain.User) []NavLink {
	var links []NavLink
	for _, r := range route.Table() {
		if r.Layout != route.LayoutDashboard || strings.Contains(r.Path, ":") {
			continue
		}
		if policy.CanRender(user, r.AllowedRoles) {
			links = append(links, NavLink{Path: r.Path, Page: r.Page})
		}
	}
	return links
}
