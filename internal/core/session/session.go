package session

// Session is the authenticated identity a view works on behalf of.
// It is read from the client on every request and passed explicitly to
// whatever needs the token.
type Session struct {
	Username string
	Token    string
}

// IsLoggedIn reports whether the session carries a token.
func (s Session) IsLoggedIn() bool {
	return s.Token != ""
}

// AccessToken is the value sent in the X-Access-Token header.
func (s Session) AccessToken() string {
	if s.Token == "" {
		return ""
	}
	return s.Username + ":" + s.Token
}
