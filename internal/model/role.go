package model

// Role names a reviewer stage or an administrative actor.
type Role string

// RoleAdmin authors system events such as ingestion.
const RoleAdmin Role = "Admin"

// User is an actor that can move accounts through the workflow.
type User struct {
	Name string
	Role Role
}

// SystemUser is the actor recorded on ingestion audit entries.
var SystemUser = User{Name: "System", Role: RoleAdmin}
