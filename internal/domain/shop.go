package domain

import "time"

// Shop is the tenant root. One record per connected store. Created on first
// OAuth handshake, token refreshed on every re-auth, deactivated (never
// deleted) when the app is uninstalled.
type Shop struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	Plan        string    `json:"plan"`
	Currency    string    `json:"currency"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdminSession is the authenticated session a queue job carries: enough to
// re-open an admin API connection when the job is eventually picked up.
type AdminSession struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
}

// Session returns the admin session for this shop.
func (s *Shop) Session() AdminSession {
	return AdminSession{ShopDomain: s.Domain, AccessToken: s.AccessToken}
}
