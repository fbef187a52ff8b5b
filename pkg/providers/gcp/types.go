package gcp

import "strings"

// Instance is one entry of `gcloud compute instances list`.
type Instance struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Zone   string            `json:"zone"`
	Status string            `json:"status"`
	Labels map[string]string `json:"labels"`
}

// ZoneName returns the zone of the instance. The API reports the zone as a
// resource URL; only its last path segment is the zone name.
func (i Instance) ZoneName() string {
	return lastSegment(i.Zone)
}

func lastSegment(value string) string {
	value = strings.TrimRight(value, "/")
	if idx := strings.LastIndex(value, "/"); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

// Inventory is the OS Config inventory of one instance.
type Inventory struct {
	Name   string                   `json:"name"`
	OSInfo OSInfo                   `json:"osInfo"`
	Items  map[string]InventoryItem `json:"items"`
}

// OSInfo describes the guest operating system.
type OSInfo struct {
	Hostname      string `json:"hostname"`
	LongName      string `json:"longName"`
	ShortName     string `json:"shortName"`
	Version       string `json:"version"`
	Architecture  string `json:"architecture"`
	KernelVersion string `json:"kernelVersion"`
}

// InventoryItemTypeInstalled marks installed software; the other type
// (AVAILABLE_PACKAGE) lists pending updates.
const InventoryItemTypeInstalled = "INSTALLED_PACKAGE"

// InventoryItem is one software item of an inventory.
type InventoryItem struct {
	ID               string           `json:"id"`
	Type             string           `json:"type"`
	OriginType       string           `json:"originType"`
	InstalledPackage *SoftwarePackage `json:"installedPackage"`
}

// SoftwarePackage holds exactly one of the package manager specific records.
type SoftwarePackage struct {
	AptPackage         *VersionedPackage    `json:"aptPackage"`
	YumPackage         *VersionedPackage    `json:"yumPackage"`
	ZypperPackage      *VersionedPackage    `json:"zypperPackage"`
	GoogetPackage      *VersionedPackage    `json:"googetPackage"`
	CosPackage         *VersionedPackage    `json:"cosPackage"`
	WuaPackage         *WindowsUpdate       `json:"wuaPackage"`
	QfePackage         *QuickFixEngineering `json:"qfePackage"`
	WindowsApplication *WindowsApplication  `json:"windowsApplication"`
}

// VersionedPackage is the record shape shared by apt, yum, zypper, googet and cos.
type VersionedPackage struct {
	PackageName  string `json:"packageName"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
}

// WindowsUpdate is a Windows Update Agent package.
type WindowsUpdate struct {
	Title          string   `json:"title"`
	UpdateID       string   `json:"updateId"`
	KBArticleIDs   []string `json:"kbArticleIds"`
	RevisionNumber int      `json:"revisionNumber"`
}

// QuickFixEngineering is an installed Windows hotfix.
type QuickFixEngineering struct {
	Caption  string `json:"caption"`
	HotFixID string `json:"hotFixId"`
}

// WindowsApplication is an entry of the Windows installed programs list.
type WindowsApplication struct {
	DisplayName    string `json:"displayName"`
	DisplayVersion string `json:"displayVersion"`
	Publisher      string `json:"publisher"`
}

// Package is an installed package reduced to manager, name and version.
type Package struct {
	Manager string
	Name    string
	Version string
}

// Package flattens the record into manager, name and version. ok is false
// when no known record is set.
func (p *SoftwarePackage) Package() (Package, bool) {
	if p == nil {
		return Package{}, false
	}
	versioned := []struct {
		manager string
		pkg     *VersionedPackage
	}{
		{"apt", p.AptPackage},
		{"yum", p.YumPackage},
		{"zypper", p.ZypperPackage},
		{"googet", p.GoogetPackage},
		{"cos", p.CosPackage},
	}
	for _, v := range versioned {
		if v.pkg != nil {
			return Package{Manager: v.manager, Name: v.pkg.PackageName, Version: v.pkg.Version}, true
		}
	}
	switch {
	case p.WuaPackage != nil:
		return Package{Manager: "wua", Name: p.WuaPackage.Title, Version: strings.Join(p.WuaPackage.KBArticleIDs, " ")}, true
	case p.QfePackage != nil:
		return Package{Manager: "qfe", Name: p.QfePackage.HotFixID, Version: p.QfePackage.Caption}, true
	case p.WindowsApplication != nil:
		return Package{Manager: "windows-application", Name: p.WindowsApplication.DisplayName, Version: p.WindowsApplication.DisplayVersion}, true
	}
	return Package{}, false
}
