// Package policy — правила доступа к заказам.
package policy

import (
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
)

var _ ports.AccessPolicy = OwnerOrAdmin{}

// OwnerOrAdmin — администратор видит всё, пользователь только свои заказы.
type OwnerOrAdmin struct{}

func (OwnerOrAdmin) IsElevated(role domain.Role) bool { return role == domain.RoleAdmin }

// Check — email сравнивается без учёта регистра; пустой email никогда не владелец.
func (p OwnerOrAdmin) Check(role domain.Role, requesterEmail, ownerEmail string) bool {
	if p.IsElevated(role) {
		return true
	}
	requesterEmail = strings.TrimSpace(requesterEmail)
	return requesterEmail != "" && strings.EqualFold(requesterEmail, strings.TrimSpace(ownerEmail))
}
