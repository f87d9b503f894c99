package auth

// Validation messages shown next to form fields
const (
	MsgRequired         = "This field is required"
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgPasswordTooShort = "Password must be at least 8 characters"
	MsgPasswordClasses  = "Password must contain uppercase, lowercase, number and special character"
	MsgPasswordMismatch = "Passwords do not match"
	MsgNameTooShort     = "Name must be at least 2 characters"
	MsgNameTooLong      = "Name must not exceed 50 characters"
	MsgNameCharacters   = "Name can only contain letters and spaces"
	MsgTermsRequired    = "You must accept the terms and conditions."
)

// Session operation messages
const (
	MsgNetworkError       = "Network error. Please check your connection."
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
	MsgFixFields          = "Please fix the errors in the form"
	MsgLoggedOut          = "Logged out successfully"
)
