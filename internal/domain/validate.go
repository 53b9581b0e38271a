package domain

// ValidRobloxUsername checks the secondary-platform handle format: 3-20
// characters, alphanumeric or underscore, no leading or trailing underscore.
func ValidRobloxUsername(name string) bool {
	if len(name) < 3 || len(name) > 20 {
		return false
	}
	if name[0] == '_' || name[len(name)-1] == '_' {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '_':
		default:
			return false
		}
	}
	return true
}
