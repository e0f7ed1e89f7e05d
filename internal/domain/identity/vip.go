package identity

// VIPLevel is the tier marker consulted by several permission rules.
type VIPLevel string

const (
	VIPNone   VIPLevel = "none"
	VIPSilver VIPLevel = "silver"
	VIPGold   VIPLevel = "gold"
)

// RoleVIP is the provider role string that overlaps with the VIP tier.
const RoleVIP = "vip"

var vipRank = map[VIPLevel]int{
	VIPNone:   0,
	VIPSilver: 1,
	VIPGold:   2,
}

// vipGrantedPermissions are the permission strings a VIP signal implies.
// Listed here so the precedence in Identity.HasPermission stays in one place.
var vipGrantedPermissions = map[string]bool{
	"adaptation:advanced": true,
	"library:unlimited":   true,
}

func (v VIPLevel) IsValid() bool {
	_, ok := vipRank[v]
	return ok
}

// AtLeast reports whether the tier is at or above the given level.
func (v VIPLevel) AtLeast(min VIPLevel) bool {
	return vipRank[v] >= vipRank[min]
}

// ParseVIPLevel maps a stored string to a tier, defaulting to none.
func ParseVIPLevel(s string) VIPLevel {
	lv := VIPLevel(s)
	if lv.IsValid() {
		return lv
	}
	return VIPNone
}
