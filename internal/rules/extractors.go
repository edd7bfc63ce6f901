package rules

// builtinExtractors holds the browser-side extraction scripts selectable by
// name from a ruleset. Scripts run inside the remote browser page context and
// must return the extracted text or null to fall through to selector-based
// extraction.
var builtinExtractors = map[string]string{
	// ChatGPT share pages render every conversation turn as an <article>;
	// joining them preserves turn boundaries better than a single selector.
	"chatgpt_articles": `
function() {
  const articles = Array.from(document.querySelectorAll('article'));
  if (articles.length > 0) {
    return articles.map(a => a.innerText).join('\n---\n');
  }
  return null;
}`,
}
