package admin

type Repository interface {
	// LoginAccount authenticates an admin and returns their id.
	LoginAccount(username, password string) (string, error)
}
