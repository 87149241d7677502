package models

import "time"

// AccountRole identifies which side of the platform an account acts for.
type AccountRole string

// Account roles
const (
	AccountDefender AccountRole = "DEFENDER"
	AccountDebtor   AccountRole = "DEBTOR"
	AccountStaff    AccountRole = "STAFF"
)

// Account holds the structure for the accounts collection. PartyID links the
// login to its domain aggregate: the defender profile id for defenders, the
// external debtor id for debtors.
type Account struct {
	ID           string      `json:"_id" bson:"_id"`
	Email        string      `json:"email" bson:"email"`
	PasswordHash string      `json:"-" bson:"passwordHash"`
	Role         AccountRole `json:"role" bson:"role"`
	PartyID      string      `json:"partyID" bson:"partyID"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
}
