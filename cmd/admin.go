package cmd

import (
	"fmt"

	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/database"
	"github.com/fallwind/s-node/service"
)

func resetAdmin() {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println(err)
		return
	}

	userService := service.UserService{}
	err = userService.UpdateFirstUser("admin", "admin")
	if err != nil {
		fmt.Println("reset admin credentials failed:", err)
	} else {
		fmt.Println("reset admin credentials success")
	}
}

func updateAdmin(username string, password string) {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println(err)
		return
	}

	userService := service.UserService{}
	err = userService.UpdateFirstUser(username, password)
	if err != nil {
		fmt.Println("update admin credentials failed:", err)
	} else {
		fmt.Println("update admin credentials success")
	}
}

func showAdmin() {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println(err)
		return
	}
	userService := service.UserService{}
	user, err := userService.GetFirstUser()
	if err != nil {
		fmt.Println("get current admin user failed:", err)
		return
	}
	fmt.Println("First admin credentials:")
	fmt.Println("\tUsername:\t", user.Username)
	fmt.Println("\tPassword:\t", user.Password)
}
