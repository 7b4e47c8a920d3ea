package accessory

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace derives the bridge's identity namespace from its
// configured name. Two bridges with different names never collide
// even when they bridge the same vendor account.
func Namespace(bridgeName string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("vesync-bridge://"+bridgeName))
}

// NewID derives the stable accessory identity for a device.
//
// The identity is a name-based (SHA-1) UUID over the vendor device id
// and the sub-device index, so it survives restarts, renames, and
// inventory reordering. Sub-device index 0 is the device itself;
// multi-outlet units expose one accessory per outlet.
//
// Parameters:
//   - ns: Bridge identity namespace (see Namespace)
//   - cid: Vendor device id
//   - subDeviceNo: Sub-device index, 0 for single-endpoint devices
//
// Returns:
//   - string: Canonical UUID string
func NewID(ns uuid.UUID, cid string, subDeviceNo int) string {
	return uuid.NewSHA1(ns, []byte(fmt.Sprintf("%s/%d", cid, subDeviceNo))).String()
}
