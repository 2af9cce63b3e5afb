package event

// Owner lifecycle events published by the identity service.
const (
	UserRegisteredDestination string = "user.registered"
	UserDeletedDestination    string = "user.deleted"

	// UserRegisteredConsumerVault and UserDeletedConsumerVault are the
	// consumer groups used by the vault module.
	UserRegisteredConsumerVault string = "user.registered.vault"
	UserDeletedConsumerVault    string = "user.deleted.vault"
)

type UserRegisteredMessage struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

type UserDeletedMessage struct {
	UserID int64 `json:"user_id"`
}
