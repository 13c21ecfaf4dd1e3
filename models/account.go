package models

// Account holds one owner's balance for one symbol. The record survives at a
// zero balance once opened; only an explicit close deletes it.
type Account struct {
	Owner    string `json:"owner"`
	Balance  Amount `json:"balance"`
	OpenedBy string `json:"opened_by"` // payer that covered the record's storage
}
