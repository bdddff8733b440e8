package domain

// Role names stored in the public profile's "roles" list and the private
// detail's "role" attribute.
const (
	RoleAdmin  = "admin"
	RoleMentor = "mentor"
	RoleMentee = "mentee"
)
