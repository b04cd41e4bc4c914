package automation

import (
	"fmt"

	"github.com/entrhq/anistream/pkg/config"
)

// Launch flags applied to every automation browser.
var baseLaunchArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-infobars",
	"--disable-blink-features=AutomationControlled",
}

// launchArgs returns the browser flags for a window of the given size.
func launchArgs(width, height int) []string {
	if width <= 0 {
		width = config.DefaultWindowWidth
	}
	if height <= 0 {
		height = config.DefaultWindowHeight
	}
	args := make([]string, 0, len(baseLaunchArgs)+1)
	args = append(args, baseLaunchArgs...)
	return append(args, fmt.Sprintf("--window-size=%d,%d", width, height))
}

// stealthScript runs before any page script and hides the usual automation
// fingerprints from challenge pages.
const stealthScript = `(() => {
  if (window.__anistreamStealth) return;
  window.__anistreamStealth = true;
  try {
    Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });

    Object.defineProperty(navigator, 'plugins', {
      get: () => [
        { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
        { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
        { name: 'Native Client', filename: 'internal-nacl-plugin', description: '' },
      ],
      configurable: true,
    });

    Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'], configurable: true });

    if (!window.chrome) {
      window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };
    }

    if (navigator.permissions && navigator.permissions.query) {
      const query = navigator.permissions.query.bind(navigator.permissions);
      navigator.permissions.query = (parameters) =>
        parameters && parameters.name === 'notifications'
          ? Promise.resolve({ state: Notification.permission })
          : query(parameters);
    }
  } catch (e) {}
})();`
