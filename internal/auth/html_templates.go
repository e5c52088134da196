package auth

// LoginCompleteHtml is served for every request the redirect listener receives.
// It carries no dynamic content; the outcome of the flow is reported through
// the helper's exit code, not through the browser.
const LoginCompleteHtml = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Nmail OAuth2</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            margin: 3rem auto;
            max-width: 32rem;
            color: #1f2937;
        }
        h2 {
            color: #059669;
        }
    </style>
</head>
<body>
    <h2>Authentication complete</h2>
    <p>You may close this browser window now.</p>
</body>
</html>
`
