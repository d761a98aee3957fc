package runner

import (
	"github.com/projectdiscovery/gologger"
	updateutils "github.com/projectdiscovery/utils/update"
	"github.com/tangre1/OpSTEM-Scheduler/pkg/version"
)

const banner = `
                 _____________________  ___
  ____  ____    / ___/_  __/ ____/  |/  /
 / __ \/ __ \   \__ \ / / / __/ / /|_/ /
/ /_/ / /_/ /  ___/ // / / /___/ /  / /
\____/ .___/  /____//_/ /_____/_/  /_/
    /_/                        scheduler
`

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tgithub.com/tangre1\n\n")
}

// GetUpdateCallback returns a callback function that updates the launcher
func GetUpdateCallback() func() {
	return func() {
		showBanner()
		updateutils.GetUpdateToolCallback("opstem-scheduler", version.GetVersion())()
	}
}
