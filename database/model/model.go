package model

type User struct {
	Id        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	LastLogin int64  `json:"lastLogin"`
}

// Run is one provisioning run of this node. A row is written after the
// pipeline brings the engine and the tunnel up, so the history survives
// the runtime directory wipe.
type Run struct {
	Id           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	DateTime     int64  `json:"dateTime"`
	Mode         string `json:"mode"`
	Ports        string `json:"ports"`
	PublicIP     string `json:"publicIP"`
	Isp          string `json:"isp"`
	FrontDomain  string `json:"frontDomain"`
	TunnelDomain string `json:"tunnelDomain"`
	EnginePID    int    `json:"enginePID"`
}

// SubVisit is an aggregated hit counter for the subscription endpoint,
// one row per client address and path per flush interval.
type SubVisit struct {
	Id       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	DateTime int64  `json:"dateTime"`
	Ip       string `json:"ip"`
	Path     string `json:"path"`
	Count    int64  `json:"count"`
}
