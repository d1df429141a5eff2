package domain

// Role определяет, какие broadcast-потоки получает соединение
// и какие входящие события оно может инициировать.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePassenger, RoleDriver, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}
