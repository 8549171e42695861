package templates

// VerifyEmail is the email-verification scenario using a 6-digit code.
var VerifyEmail = Expect[VerifyEmailData]("auth.verify_email")

// ResetPassword is the password-reset scenario using a 6-digit code.
var ResetPassword = Expect[ResetPasswordData]("auth.reset_password")

// VerifyEmailData holds variables for the auth.verify_email scenario.
type VerifyEmailData struct {
	Name         string
	Code         string
	SupportEmail string
}

// ResetPasswordData holds variables for the auth.reset_password scenario.
type ResetPasswordData struct {
	Name         string
	Code         string
	SupportEmail string
}
