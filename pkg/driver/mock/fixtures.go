package mock

// Default responses served by a new Device.
const (
	AppUIFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<app-ui>
	<topscreen>
		<plugin id="dev" name="Sample Channel"/>
		<screen focused="true" type="RoSGScreen">
			<HomeScene bounds="{0, 0, 1920, 1080}" children="2" extends="Scene" focusable="true" focused="true" index="0" visible="true">
				<Rectangle bounds="{0, 0, 1920, 1080}" children="0" color="0x101010FF" index="0"/>
				<LabelList bounds="{100, 200, 340, 144}" children="3" focusItem="1" focusable="true" focused="true" index="1" name="menu">
					<Label bounds="{0, 0, 340, 48}" index="0" text="Item 1"/>
					<Label bounds="{0, 11, 340, 48}" focused="true" index="1" text="Item 2"/>
					<Label bounds="{0, 96, 340, 48}" index="2" text="Item 3"/>
				</LabelList>
			</HomeScene>
		</screen>
	</topscreen>
</app-ui>`

	AppsFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<apps>
	<app id="31012" type="menu" version="1.9.3">Movie Store</app>
	<app id="12" type="appl" version="4.2.81">Streaming Service</app>
	<app id="dev" type="appl" version="1.0.0">Sample Channel</app>
</apps>`

	ActiveAppFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<active-app>
	<app id="dev" type="appl" version="1.0.0">Sample Channel</app>
</active-app>`

	HomeActiveAppFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<active-app>
	<app>Roku</app>
</active-app>`

	PlayingFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<player error="false" state="play">
	<plugin bandwidth="10000000 bps" id="dev" name="Sample Channel"/>
	<format audio="aac" captions="none" container="hls" drm="none" video="mpeg4_10b"/>
	<position>4500 ms</position>
	<duration>600000 ms</duration>
	<is_live>false</is_live>
</player>`

	IdlePlayerFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<player error="false" state="close"/>`

	DeviceInfoFixture = `<?xml version="1.0" encoding="UTF-8" ?>
<device-info>
	<udn>29380007-0800-1025-80a4-d83154332d7e</udn>
	<serial-number>X00000000000</serial-number>
	<model-name>Roku Ultra</model-name>
	<software-version>11.5.0</software-version>
	<developer-enabled>true</developer-enabled>
</device-info>`

	// DeviceErrorBody is what a device answers when a query fails.
	DeviceErrorBody = "Request Failed with an error code of: 500"
)
