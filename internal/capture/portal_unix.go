//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

var portalHandleToken = newPortalHandleToken

// errPortalCancelled is reported when the user dismisses the portal dialog.
var errPortalCancelled = errors.New("portal screenshot cancelled")

func portalScreenshot(ctx context.Context, opts Options) (*image.RGBA, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Printf("dbus close: %v", cerr)
		}
	}()

	obj := conn.Object("org.freedesktop.portal.Desktop", "/org/freedesktop/portal/desktop")
	var handle dbus.ObjectPath
	call := obj.CallWithContext(ctx, "org.freedesktop.portal.Screenshot.Screenshot", 0, "", portalScreenshotOptions(opts))
	if call.Err != nil {
		return nil, fmt.Errorf("portal screenshot call: %w", call.Err)
	}
	if err := call.Store(&handle); err != nil {
		return nil, fmt.Errorf("portal screenshot response: %w", err)
	}

	sigc := make(chan *dbus.Signal, 1)
	conn.Signal(sigc)
	defer conn.RemoveSignal(sigc)
	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", handle)
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, fmt.Errorf("portal screenshot subscribe: %w", err)
	}
	defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return nil, fmt.Errorf("portal screenshot: connection closed")
			}
			if sig.Path != handle || sig.Name != "org.freedesktop.portal.Request.Response" {
				continue
			}
			return portalResponseImage(sig.Body)
		}
	}
}

func portalResponseImage(body []interface{}) (*image.RGBA, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("portal screenshot: malformed response")
	}
	if code, ok := body[0].(uint32); ok && code != 0 {
		return nil, errPortalCancelled
	}
	res, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("portal screenshot: malformed results")
	}
	uriVar, ok := res["uri"]
	if !ok {
		return nil, fmt.Errorf("portal screenshot: response missing image data")
	}
	uri, _ := uriVar.Value().(string)
	path := strings.TrimPrefix(uri, "file://")
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	img, err := loadPNG(path)
	if err != nil {
		return nil, fmt.Errorf("portal screenshot image: %w", err)
	}
	return img, nil
}

func newPortalHandleToken() string {
	return "snapmark_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func portalScreenshotOptions(opts Options) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"interactive":  dbus.MakeVariant(opts.Interactive),
		"modal":        dbus.MakeVariant(opts.Interactive),
		"handle_token": dbus.MakeVariant(portalHandleToken()),
	}
}

func loadPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("remove %s: %v", path, err)
		}
	}()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
