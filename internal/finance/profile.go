package finance

import "fmt"

// ContributorNotice accompanies every contributor listing.
const ContributorNotice = "The organizations themselves did not donate; the money came from the organization's PAC, " +
	"its individual members or employees or owners, and those individuals' immediate families."

// Contribution is one ranked row of a contributor or industry listing.
// Amounts are whole dollars.
type Contribution struct {
	Name       string `json:"name"`
	Total      int64  `json:"total"`
	Committee  int64  `json:"committee"`
	Individual int64  `json:"individual"`
}

func (c Contribution) String() string {
	return fmt.Sprintf("%s - Total: $%d - from Individuals: $%d - from PACs: $%d", c.Name, c.Total, c.Individual, c.Committee)
}

// Profile is the financial attachment of an officeholder or peer delegate.
// Both listings are rank ordered as returned by the provider.
type Profile struct {
	Contributors []Contribution `json:"contributors"`
	Industries   []Contribution `json:"industries"`
}
