package ports

import "github.com/Gunvolt24/record_shop/internal/domain"

// AccessPolicy — чистый предикат доступа к заказу по роли и владельцу.
type AccessPolicy interface {
	Check(role domain.Role, requesterEmail, ownerEmail string) bool
	IsElevated(role domain.Role) bool
}
