package models

type AssetParams struct {
	Id string `path:"id"`
}

type AccessTokenParams struct {
	Id            string `path:"id"`
	ExpirySeconds string `query:"expiry_seconds"`
}
