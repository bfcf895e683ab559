package cmd

import (
	"fmt"
	"strings"

	"github.com/fallwind/s-node/service"
)

// showSetting prints the resolved settings, after environment and file
// precedence, exactly as a run would see them.
func showSetting() {
	settingService := service.SettingService{}

	ports, err := settingService.GetPorts()
	if err != nil {
		fmt.Println("ports:", err)
	} else {
		fmt.Println("ports:", strings.Join(ports, " "))
	}

	fmt.Println("single port UDP:", settingService.GetSinglePortUDP())

	if settingService.GetArgoToken() != "" {
		fmt.Println("tunnel: fixed")
		if domain := settingService.GetArgoDomain(); domain != "" {
			fmt.Println("tunnel domain:", domain)
		} else {
			fmt.Println("tunnel domain: (not set)")
		}
	} else {
		fmt.Println("tunnel: quick")
	}

	argoPort, err := settingService.GetArgoPort()
	if err != nil {
		fmt.Println("argo port:", err)
	} else {
		fmt.Println("argo port:", argoPort)
	}

	if addr := settingService.GetAdminAddr(); addr != "" {
		fmt.Println("admin addr:", addr)
	} else {
		fmt.Println("admin addr: (disabled)")
	}

	fmt.Println("traffic age:", settingService.GetTrafficAge(), "days")
}
