package models

// TokenDetails holds the details of the JWT token pair returned to the client.
type TokenDetails struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessUUID   string `json:"-"` // Usually not exposed
	RefreshUUID  string `json:"-"` // Usually not exposed
	AtExpires    int64  `json:"at_expires"`
	RtExpires    int64  `json:"rt_expires"`
}
