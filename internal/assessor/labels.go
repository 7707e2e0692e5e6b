package assessor

// Threat labels appended to ReputationScore.Threats.
const (
	LabelUnreachable         = "Unreachable URL"
	LabelFastResponse        = "Suspiciously fast response"
	LabelClientError         = "Client error response (4xx)"
	LabelServerError         = "Server error response (5xx)"
	LabelManyRedirects       = "Excessive redirects"
	LabelCrossDomainRedirect = "Redirects to a different domain"

	LabelLoginForm         = "Login form present"
	LabelExternalLinks     = "Many external links"
	LabelSuspiciousScripts = "Suspicious scripts"
	LabelIframes           = "Iframes present"
	LabelForms             = "Forms present"

	LabelNoHTTPS           = "No HTTPS"
	LabelNoSecurityHeaders = "Missing security headers"
	LabelLongURL           = "Long URL"
	LabelManySubdomains    = "Excessive subdomains"
	LabelSuspiciousTLD     = "Suspicious TLD"
)
