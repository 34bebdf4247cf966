package auth

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Startup credential floors. The signing secret must survive offline
// guessing; operator passwords must clear the deny list below.
const (
	minPasswordLength  = 12
	minJWTSecretLength = 32
)

// weakPasswordList is rejected case-insensitively, both as exact
// matches and as prefixes of barely-long-enough passwords.
var weakPasswordList = []string{
	"admin",
	"password",
	"123456",
	"secret",
	"admin123",
	"password123",
	"123456789",
	"12345678",
	"qwerty",
	"abc123",
	"letmein",
	"welcome",
	"monkey",
	"1234567890",
	"password1",
	"admin1",
	"test",
	"test123",
	"default",
	"root",
}

var keyboardRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"qwerty",
	"asdfgh",
	"zxcvb",
}

// ValidateJWTSecret checks the token signing secret at startup, before
// any token can be issued or verified.
func ValidateJWTSecret() error {
	secret := os.Getenv("JWT_SECRET")
	switch {
	case secret == "":
		return fmt.Errorf("jwt secret validation failed: JWT_SECRET must not be empty")
	case len(secret) < minJWTSecretLength:
		return fmt.Errorf("jwt secret validation failed: JWT_SECRET must be at least %d characters (current length: %d)", minJWTSecretLength, len(secret))
	case allSameByte(secret):
		return fmt.Errorf("jwt secret validation failed: JWT_SECRET must not be a repeated character")
	}
	return nil
}

// ValidateAdminCredentials checks ADMIN_USER and ADMIN_USER_PASSWORD at
// startup. A failure here aborts startup; shipping with a guessable
// admin login is worse than not starting. Error messages are safe to
// log and never echo the password.
func ValidateAdminCredentials() error {
	user := os.Getenv("ADMIN_USER")
	pass := os.Getenv("ADMIN_USER_PASSWORD")

	if user == "" {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER must not be empty")
	}
	if pass == "" {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be empty")
	}
	if len(pass) < minPasswordLength {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must be at least %d characters (current length: %d)", minPasswordLength, len(pass))
	}

	// Pattern checks run before the deny list so "123456789012" is
	// reported as a numeric pattern rather than a weak-prefix match.
	if isNumericPattern(pass) {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be a simple numeric pattern")
	}
	if isKeyboardPattern(pass) {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be a keyboard pattern")
	}

	lower := strings.ToLower(pass)
	for _, weak := range weakPasswordList {
		if lower == weak {
			return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be a weak password")
		}
		// Catches padding tricks like "admin1234567890".
		if strings.HasPrefix(lower, weak) && len(pass) < minPasswordLength+5 {
			return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be based on common weak passwords")
		}
	}

	return nil
}

// ValidateViewerCredentials checks the optional DEMO_USER login at
// startup. Unlike the admin check it never aborts: a misconfigured
// viewer login disables the viewer role and the service runs in
// admin-only mode.
func ValidateViewerCredentials(logger *slog.Logger) {
	demoUser := os.Getenv("DEMO_USER")
	demoPass := os.Getenv("DEMO_USER_PASSWORD")

	if demoUser == "" {
		logger.Info("viewer role not configured - running in admin-only mode")
		return
	}
	if demoPass == "" {
		logger.Warn("DEMO_USER_PASSWORD is empty - disabling viewer role")
		_ = os.Unsetenv("DEMO_USER")
		return
	}
	if demoUser == os.Getenv("ADMIN_USER") {
		logger.Warn("DEMO_USER cannot be the same as ADMIN_USER - disabling viewer role")
		disableViewer()
		return
	}
	if len(demoPass) < minPasswordLength {
		logger.Warn("DEMO_USER_PASSWORD must be at least 12 characters - disabling viewer role")
		disableViewer()
		return
	}

	lower := strings.ToLower(demoPass)
	for _, weak := range weakPasswordList {
		if lower == weak || strings.HasPrefix(lower, weak) {
			logger.Warn("DEMO_USER_PASSWORD is a weak password - disabling viewer role",
				"hint", "avoid common passwords")
			disableViewer()
			return
		}
	}

	logger.Info("viewer role configured successfully", "user", demoUser)
}

func disableViewer() {
	_ = os.Unsetenv("DEMO_USER")
	_ = os.Unsetenv("DEMO_USER_PASSWORD")
}

func allSameByte(s string) bool {
	if s == "" {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// isNumericPattern reports whether pass is all digits forming a
// repeated, ascending, or descending sequence (digits wrap 9->0).
func isNumericPattern(pass string) bool {
	if len(pass) < minPasswordLength {
		return false
	}
	if allSameByte(pass) {
		return true
	}
	for _, ch := range pass {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	ascending, descending := true, true
	for i := 1; i < len(pass); i++ {
		diff := int(pass[i]) - int(pass[i-1])
		if diff != 1 && diff != -9 {
			ascending = false
		}
		if diff != -1 && diff != 9 {
			descending = false
		}
	}
	return ascending || descending
}

func isKeyboardPattern(pass string) bool {
	lower := strings.ToLower(pass)
	for _, row := range keyboardRows {
		if strings.Contains(lower, row) || strings.Contains(lower, reverse(row)) {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
