package detectors

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"archgraph/internal/architecture"
	"archgraph/internal/confidence"
	"archgraph/internal/detect"
)

const (
	methodEntitlement = "entitlement"
	entitlementBase   = 0.9
)

var entitlementGlobs = []string{"*.entitlements", "Info.plist", "AndroidManifest.xml"}

var (
	plistKey          = regexp.MustCompile(`<key>\s*([\w.-]+)\s*</key>`)
	usageDescription  = regexp.MustCompile(`<key>\s*NS(\w+?)UsageDescription\s*</key>`)
	androidPermission = regexp.MustCompile(`<uses-permission(?:-sdk-\d+)?\s+[^>]*android:name\s*=\s*"([\w.]+)"`)
)

// appleEntitlements names the entitlement keys people recognize
var appleEntitlements = map[string]string{
	"aps-environment":                                     "apple-push-notifications",
	"com.apple.developer.in-app-payments":                 "apple-pay",
	"com.apple.developer.healthkit":                       "healthkit",
	"com.apple.developer.homekit":                         "homekit",
	"com.apple.developer.icloud-services":                 "icloud",
	"com.apple.developer.icloud-container-identifiers":    "icloud",
	"com.apple.developer.ubiquity-kvstore-identifier":     "icloud",
	"com.apple.developer.applesignin":                     "sign-in-with-apple",
	"com.apple.developer.associated-domains":              "associated-domains",
	"com.apple.security.application-groups":               "app-groups",
	"com.apple.developer.siri":                            "siri",
	"com.apple.developer.nfc.readersession.formats":       "nfc",
	"com.apple.developer.networking.wifi-info":            "wifi-info",
	"com.apple.external-accessory.wireless-configuration": "wireless-accessory",
	"com.apple.security.app-sandbox":                      "app-sandbox",
	"com.apple.security.network.client":                   "network-client",
	"com.apple.security.network.server":                   "network-server",
	"keychain-access-groups":                              "keychain-sharing",
}

func entitlementDescriptor() detect.Descriptor {
	return detect.Descriptor{
		Name:       "entitlements",
		Capability: detect.CapEntitlement,
		Include:    entitlementGlobs,
		Detect: func(ctx context.Context, in *detect.Input) (*detect.Result, error) {
			acc := detect.NewAccumulator()
			warnings, err := in.Each(ctx, func(src *confidence.Source) {
				switch path.Base(src.Path) {
				case "AndroidManifest.xml":
					scanAndroidManifest(in, src, acc)
				case "Info.plist":
					scanUsageDescriptions(in, src, acc)
				default:
					scanEntitlements(in, src, acc)
				}
			})
			acc.Warn(warnings...)
			return acc.Result(), err
		},
	}
}

func entitlementHit(name, key, platform string) detect.Hit {
	return detect.Hit{
		Type:           architecture.TypeInfra,
		Name:           name,
		Layer:          architecture.LayerInfra,
		Purpose:        "platform capability",
		Symbol:         key,
		Tags:           []string{platform},
		Method:         methodEntitlement,
		ConnectionType: architecture.ConnRequiresEntitlement,
		Description:    fmt.Sprintf("requires %s", name),
	}
}

func scanEntitlements(in *detect.Input, src *confidence.Source, acc *detect.Accumulator) {
	for i, line := range src.Lines {
		for _, m := range plistKey.FindAllStringSubmatch(line, -1) {
			key := m[1]
			name, ok := appleEntitlements[key]
			if !ok {
				name = key
			}
			record(in, src, acc, entitlementHit(name, key, "ios"), i+1, entitlementBase)
		}
	}
}

func scanUsageDescriptions(in *detect.Input, src *confidence.Source, acc *detect.Accumulator) {
	for i, line := range src.Lines {
		for _, m := range usageDescription.FindAllStringSubmatch(line, -1) {
			name := "ios-" + strings.ToLower(m[1])
			record(in, src, acc, entitlementHit(name, "NS"+m[1]+"UsageDescription", "ios"), i+1, entitlementBase)
		}
	}
}

func scanAndroidManifest(in *detect.Input, src *confidence.Source, acc *detect.Accumulator) {
	for i, line := range src.Lines {
		for _, m := range androidPermission.FindAllStringSubmatch(line, -1) {
			perm := m[1]
			name := "android-" + strings.ToLower(strings.ReplaceAll(perm[strings.LastIndex(perm, ".")+1:], "_", "-"))
			record(in, src, acc, entitlementHit(name, perm, "android"), i+1, entitlementBase)
		}
	}
}
