package cli

import (
	"log"
	"os/exec"
	"runtime"
)

func OpenBrowser(url string) {
	var err error

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		log.Printf("unable to open browser on %s, please open %s manually", runtime.GOOS, url)
		return
	}
	if err != nil {
		log.Printf("unable to open browser: %v", err)
	}
}
