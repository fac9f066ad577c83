package handler

import "github.com/gofiber/fiber/v2"

// indexHTML is the minimal built-in page; real asset serving lives behind a
// CDN in deployment.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>tubefetch</title>
</head>
<body>
  <h1>tubefetch</h1>
  <p>POST a JSON body {"url": "...", "format": "mp4|mp3", "quality": "best|720p|480p"}
  to <code>/start_download</code>, poll <code>/download_status/&lt;id&gt;</code>,
  then fetch <code>/download_file/&lt;id&gt;</code>.</p>
</body>
</html>
`

// Index handles GET /.
func Index(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}
