package config

import (
	"testing"
	"time"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without a config file", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
			So(viper.GetDuration(key.BatchDelay), ShouldEqual, 5*time.Second)
			So(viper.GetStringSlice(key.ResolveStrategies), ShouldResemble, []string{"scan", "render", "browser"})
		})

		Convey("Should read overrides from the environment", func() {
			t.Setenv("CINEGATE_RENDER_API_KEY", "k-123")
			_ = Setup()
			So(viper.GetString(key.RenderAPIKey), ShouldEqual, "k-123")
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("browser.remote.host"), ShouldEqual, "browser_remote_host")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.BrowserRemoteHost]

		Convey("Env should carry the application prefix", func() {
			So(field.Env(), ShouldEqual, "CINEGATE_BROWSER_REMOTE_HOST")
		})

		Convey("Durations should report their type", func() {
			f := Default[key.FetchTimeout]
			So(f.typeName(), ShouldEqual, "duration")
		})
	})
}
