package wafadmin;

import (
   "github.com/eriq-augustine/wafcanary/canary"
)

// A page of canary hashes.
// A zero cursor means there is no next page.
type CanaryPage struct {
   Cursor int `json:"cursor"`
   Hashes []string `json:"hashes"`
}

func (this CanaryPage) HasNext() bool {
   return this.Cursor != 0;
}

type Ban struct {
   IP string `json:"ip"`
   TTLSeconds int `json:"ttlSeconds"`
}

type BanPage struct {
   Cursor int `json:"cursor"`
   Bans []Ban `json:"bans"`
}

func (this BanPage) HasNext() bool {
   return this.Cursor != 0;
}

type canaryRequest struct {
   Hashes []string `json:"hashes"`
}

// Credentials are always hashed locally, so the credential list is always empty.
type canaryDeleteRequest struct {
   Hashes []string `json:"hashes"`
   Credentials []canary.Credential `json:"credentials"`
}

type banRequest struct {
   IP string `json:"ip"`
   TTLSeconds int `json:"ttlSeconds"`
}

type errorBody struct {
   Error string `json:"error"`
   Detail string `json:"detail"`
}
