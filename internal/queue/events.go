package queue

// Queue names and event payloads shared by the publisher and consumer.

const UserRegisteredQueue = "user.registered"

// UserRegisteredEvent is emitted after a successful registration.  Consumers
// use it for welcome mail and signup bookkeeping; it carries no secrets.
type UserRegisteredEvent struct {
    UserID       uint64 `json:"user_id"`
    Username     string `json:"username"`
    Email        string `json:"email"`
    Fullname     string `json:"fullname"`
    RegisteredAt string `json:"registered_at"`
}
