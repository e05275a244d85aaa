package mailer

import "fmt"

// VerificationEmail renders the body sent with an email verification link.
func VerificationEmail(fullName, link string) (subject, html string) {
	subject = "Verify Your Email - Open Student"
	html = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:600px;margin:0 auto">
  <h2>Welcome, %s!</h2>
  <p>Please confirm your email address to finish setting up your account.</p>
  <p><a href="%s" style="background:#1a73e8;color:#fff;padding:12px 24px;text-decoration:none;border-radius:4px">Verify Email</a></p>
  <p>This link expires in 24 hours. If you did not create an account, you can ignore this message.</p>
</div>`, fullName, link)
	return subject, html
}

// PasswordResetEmail renders the body sent with a password reset link.
func PasswordResetEmail(fullName, link string) (subject, html string) {
	subject = "Password Reset Request - Open Student"
	html = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:600px;margin:0 auto">
  <h2>Hello, %s</h2>
  <p>We received a request to reset your password.</p>
  <p><a href="%s" style="background:#1a73e8;color:#fff;padding:12px 24px;text-decoration:none;border-radius:4px">Reset Password</a></p>
  <p>This link expires in 1 hour. If you did not request a reset, no action is needed.</p>
</div>`, fullName, link)
	return subject, html
}

// CertificateEmail renders the body delivering a completion certificate.
func CertificateEmail(fullName, programName, certificateURL string) (subject, html string) {
	subject = fmt.Sprintf("Certificate of Completion - %s", programName)
	html = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:600px;margin:0 auto">
  <h2>Congratulations, %s!</h2>
  <p>You have successfully completed <strong>%s</strong>.</p>
  <p><a href="%s">View your certificate</a></p>
</div>`, fullName, programName, certificateURL)
	return subject, html
}
