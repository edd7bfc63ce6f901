package scrape

import (
	"fmt"
	"sort"
	"strings"
)

// sessionScript drives one remote browser session. It is static apart from the
// extractor table, which is assembled once at executor construction from the
// registry's named scripts; per-request variation travels through the context
// object only.
const sessionScript = `
export default async function({ page, context }) {
  const { url, overlaySelectors, contentSelectors, noisePatterns, minContentLength, extractorName, navTimeoutMs } = context;

  await page.goto(url, { waitUntil: 'networkidle2', timeout: navTimeoutMs });

  // Overlays reappear asynchronously, so removal repeats for the whole session.
  await page.evaluate((selectors) => {
    const removeOverlays = () => {
      selectors.forEach(sel => {
        document.querySelectorAll(sel).forEach(el => el.remove());
      });
      document.body.style.overflow = 'auto';
      document.documentElement.style.overflow = 'auto';
    };
    removeOverlays();
    setInterval(removeOverlays, 1000);
  }, overlaySelectors);

  await new Promise(r => setTimeout(r, 3000));

  const images = [];
  page.on('response', async (response) => {
    const ct = response.headers()['content-type'] || '';
    if (ct.startsWith('image/') && !response.url().includes('pixel') && !response.url().includes('icon')) {
      try {
        const buffer = await response.buffer();
        if (buffer.length > 2000) {
          images.push({ url: response.url(), contentType: ct, base64: buffer.toString('base64') });
        }
      } catch (e) {}
    }
  });

  let lastHeight = await page.evaluate('document.body.scrollHeight');
  for (let i = 0; i < 20; i++) {
    await page.mouse.wheel(0, 4000);
    await new Promise(r => setTimeout(r, 1500));
    const newHeight = await page.evaluate('document.body.scrollHeight');
    if (newHeight === lastHeight) break;
    lastHeight = newHeight;
  }

  const text = await page.evaluate((selectors, extractorName, patterns, minLength) => {
    const extractors = __EXTRACTORS__;
    const strip = (value) => {
      patterns.forEach(src => { value = value.replace(new RegExp(src, 'g'), ''); });
      return value.trim();
    };

    const extractor = extractors[extractorName];
    if (extractor) {
      try {
        const result = extractor();
        if (result && result.length > minLength) {
          return strip(result);
        }
      } catch (e) {}
    }

    for (const sel of selectors) {
      const elements = document.querySelectorAll(sel);
      if (elements.length > 0) {
        const joined = Array.from(elements).map(el => el.innerText).join('\n---\n');
        const content = strip(joined);
        if (content.length > minLength) {
          return content;
        }
      }
    }

    return document.body.innerText;
  }, contentSelectors, extractorName, noisePatterns, minContentLength);

  const title = await page.title();
  const html = await page.content();

  return { data: { title, html, text, images }, type: 'application/json' };
};
`

// renderScript embeds the registered extractor scripts into the session script.
func renderScript(extractors map[string]string) string {
	names := make([]string, 0, len(extractors))
	for name := range extractors {
		names = append(names, name)
	}
	sort.Strings(names)

	var table strings.Builder
	table.WriteString("{")
	for _, name := range names {
		fmt.Fprintf(&table, "\n  %q: %s,", name, strings.TrimSpace(extractors[name]))
	}
	table.WriteString("\n}")

	return strings.Replace(sessionScript, "__EXTRACTORS__", table.String(), 1)
}
