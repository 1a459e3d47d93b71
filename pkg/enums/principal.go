package enums

// PrincipalKind distinguishes end users from administrators in tokens and
// request context.
type PrincipalKind string

const (
	PrincipalKindUser  PrincipalKind = "user"
	PrincipalKindAdmin PrincipalKind = "admin"
)

func (k PrincipalKind) IsValid() bool {
	return k == PrincipalKindUser || k == PrincipalKindAdmin
}
