package domain

import "strings"

// Role — роль инициатора запроса.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole — роль из строки заголовка; неизвестное значение трактуется как user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Requester — кто выполняет операцию.
type Requester struct {
	Email string
	Role  Role
}

// SystemRequester — внутренний инициатор (обработчик событий исполнения заказов).
var SystemRequester = Requester{Email: "system", Role: RoleAdmin}
