package service

import (
	"time"

	"github.com/fallwind/s-node/database"
	"github.com/fallwind/s-node/database/model"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/util/common"
)

type UserService struct {
}

func (s *UserService) GetFirstUser() (*model.User, error) {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(username string, password string, remoteIP string) (string, error) {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ? and password = ?", username, password).
		First(user).Error
	if err != nil {
		logger.Warning("wrong username or password from ", remoteIP)
		return "", common.NewError("wrong username or password")
	}

	err = db.Model(model.User{}).
		Where("id = ?", user.Id).
		Update("last_login", time.Now().Unix()).Error
	if err != nil {
		logger.Warning("unable to record login time: ", err)
	}

	return user.Username, nil
}

func (s *UserService) UpdateFirstUser(username string, password string) error {
	if username == "" {
		return common.NewError("username can not be empty")
	}
	if password == "" {
		return common.NewError("password can not be empty")
	}

	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).First(user).Error
	if database.IsNotFound(err) {
		user.Username = username
		user.Password = password
		return db.Create(user).Error
	} else if err != nil {
		return err
	}

	user.Username = username
	user.Password = password
	return db.Save(user).Error
}

func (s *UserService) ChangePass(id string, oldPass string, newUsername string, newPass string) error {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(model.User{}).
		Where("id = ? and password = ?", id, oldPass).
		First(user).Error
	if err != nil {
		return common.NewError("current password is wrong")
	}

	user.Username = newUsername
	user.Password = newPass
	return db.Save(user).Error
}
