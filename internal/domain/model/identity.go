package model

// Identity is the single normalized identity context produced by the auth
// collaborator. Core calls take it (or its CompanyID) explicitly and never
// re-derive identity fields downstream.
type Identity struct {
	CompanyID int64
	UserID    string
	Role      string
}
