package user

// User holds a bettor's balance. Registration and authentication live
// elsewhere; the engine only debits stakes and credits payouts.
type User struct {
	ID      int64
	Name    string
	Balance float64
}
