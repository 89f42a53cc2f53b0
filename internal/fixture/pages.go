package fixture

// Page is a fixture document.
type Page struct {
	Title string
	HTML  string
}

const (
	ButtonPath     = "/button"
	JavaScriptPath = "/javascript"
)

// Pages maps URL paths to fixture documents.
var Pages = map[string]Page{
	ButtonPath: {
		Title: "Button Page",
		HTML: `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Button Page</title>
</head>
<body>
  <h1>Button Page</h1>
  <p>Clicking the button updates the output below.</p>
  <button id="button" onclick="document.getElementById('output').textContent = 'button was clicked'">Click Me</button>
  <div id="output"></div>
</body>
</html>
`,
	},
	JavaScriptPath: {
		Title: "JavaScript Page",
		HTML: `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>JavaScript Page</title>
  <script>
    console.log("javascript page loaded");
    console.warn("this is a warning");
    console.error("this is an error");
    window.addEventListener("load", function () {
      document.getElementById("status").textContent = "ready";
    });
  </script>
</head>
<body>
  <h1>JavaScript Page</h1>
  <div id="status">loading</div>
</body>
</html>
`,
	},
}
