package cmd

import (
	"flag"
	"fmt"
)

// ParseCmd dispatches the management subcommands. args starts with the
// subcommand name.
func ParseCmd(args []string) {
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "admin":
		adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
		reset := adminCmd.Bool("reset", false, "reset admin credentials to admin/admin")
		show := adminCmd.Bool("show", false, "show current admin credentials")
		username := adminCmd.String("username", "", "set admin username")
		password := adminCmd.String("password", "", "set admin password")
		adminCmd.Parse(args[1:])

		switch {
		case *reset:
			resetAdmin()
		case *show:
			showAdmin()
		case *username != "" || *password != "":
			updateAdmin(*username, *password)
		default:
			adminCmd.Usage()
		}
	case "setting":
		settingCmd := flag.NewFlagSet("setting", flag.ExitOnError)
		show := settingCmd.Bool("show", false, "show the resolved settings")
		settingCmd.Parse(args[1:])

		if *show {
			showSetting()
		} else {
			settingCmd.Usage()
		}
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("subcommands:")
	fmt.Println("    admin    [-show | -reset | -username name -password pass]")
	fmt.Println("    setting  [-show]")
}
