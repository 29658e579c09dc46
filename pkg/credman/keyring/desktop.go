package keyring

import (
	"strings"

	"github.com/warpdl/warpcookie/pkg/logger"
)

// DesktopEnvironment is the Linux desktop as classified by Chromium's
// xdg_util GetDesktopEnvironment.
type DesktopEnvironment int

const (
	DesktopOther DesktopEnvironment = iota
	DesktopCinnamon
	DesktopDeepin
	DesktopGnome
	DesktopKDE3
	DesktopKDE4
	DesktopKDE5
	DesktopKDE6
	DesktopPantheon
	DesktopUKUI
	DesktopUnity
	DesktopXFCE
	DesktopLXQt
)

var desktopNames = [...]string{
	DesktopOther:    "OTHER",
	DesktopCinnamon: "CINNAMON",
	DesktopDeepin:   "DEEPIN",
	DesktopGnome:    "GNOME",
	DesktopKDE3:     "KDE3",
	DesktopKDE4:     "KDE4",
	DesktopKDE5:     "KDE5",
	DesktopKDE6:     "KDE6",
	DesktopPantheon: "PANTHEON",
	DesktopUKUI:     "UKUI",
	DesktopUnity:    "UNITY",
	DesktopXFCE:     "XFCE",
	DesktopLXQt:     "LXQT",
}

func (d DesktopEnvironment) String() string {
	if int(d) >= 0 && int(d) < len(desktopNames) {
		return desktopNames[d]
	}
	return "UNKNOWN"
}

// DetectDesktopEnvironment classifies the desktop from env. It reads nothing
// but env, so callers pass Environ() in production and literal maps in tests.
// A nil log discards diagnostics.
func DetectDesktopEnvironment(env map[string]string, log logger.Logger) DesktopEnvironment {
	if log == nil {
		log = logger.NewNopLogger()
	}
	desktopSession := env["DESKTOP_SESSION"]
	_, hasKDEVersion := env["KDE_SESSION_VERSION"]

	if xdg, ok := env["XDG_CURRENT_DESKTOP"]; ok {
		for _, part := range strings.Split(xdg, ":") {
			switch strings.TrimSpace(part) {
			case "Unity":
				if strings.Contains(desktopSession, "gnome-fallback") {
					return DesktopGnome
				}
				return DesktopUnity
			case "Deepin":
				return DesktopDeepin
			case "GNOME":
				return DesktopGnome
			case "X-Cinnamon":
				return DesktopCinnamon
			case "KDE":
				switch version := env["KDE_SESSION_VERSION"]; version {
				case "5":
					return DesktopKDE5
				case "6":
					return DesktopKDE6
				case "4":
					return DesktopKDE4
				default:
					log.Info("unknown KDE version: %q. Assuming KDE4", version)
					return DesktopKDE4
				}
			case "Pantheon":
				return DesktopPantheon
			case "XFCE":
				return DesktopXFCE
			case "UKUI":
				return DesktopUKUI
			case "LXQt":
				return DesktopLXQt
			}
		}
		log.Debug("XDG_CURRENT_DESKTOP is set to an unknown value: %q", xdg)
	}

	switch {
	case desktopSession == "deepin":
		return DesktopDeepin
	case desktopSession == "mate" || desktopSession == "gnome":
		return DesktopGnome
	case desktopSession == "kde4" || desktopSession == "kde-plasma":
		return DesktopKDE4
	case desktopSession == "kde":
		if hasKDEVersion {
			return DesktopKDE4
		}
		return DesktopKDE3
	case strings.Contains(desktopSession, "xfce") || desktopSession == "xubuntu":
		return DesktopXFCE
	case desktopSession == "ukui":
		return DesktopUKUI
	default:
		log.Debug("DESKTOP_SESSION is set to an unknown value: %q", desktopSession)
	}

	if _, ok := env["GNOME_DESKTOP_SESSION_ID"]; ok {
		return DesktopGnome
	}
	if _, ok := env["KDE_FULL_SESSION"]; ok {
		if hasKDEVersion {
			return DesktopKDE4
		}
		return DesktopKDE3
	}
	return DesktopOther
}
