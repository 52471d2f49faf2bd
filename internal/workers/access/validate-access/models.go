// internal/workers/access/validate-access/models.go
package validateaccess

type Input struct {
	UserID string `json:"userId"`
}

// Output reports the gate verdict. Denial is a business outcome, not a job
// failure; the workflow branches on allowed.
type Output struct {
	UserID  string `json:"userId"`
	Verdict string `json:"accessVerdict"`
	Allowed bool   `json:"accessAllowed"`
}
