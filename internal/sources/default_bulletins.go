package sources

// DefaultBulletins is the legacy notice feed used when no bulletins are
// configured. It stands in for an external feed that does not exist yet.
//
// The KSFO notice is written "2512181230-UFN" so it yields an open-ended
// status. In the legacy feed it read "2512181230 UNTIL UFN", which has no
// START-END window and would be dropped as malformed.
var DefaultBulletins = []string{
	`
    !DEN 12/034 (KDEN) ZDV
    RWY 17L/35R CLSD due to WIP MOWING.
    EFFECTIVE: 2512181100-2512181500.
    CONTACT TOWER FOR SPECIFIC INSTRUCTIONS.
    `,
	`
    !SFO 12/035 (KSFO) ZOA
    ILS RWY 28R INOP.
    EFFECTIVE: 2512181230-UFN.
    EXPECT VISUAL APPROACHES.
    `,
	`
    !HYG 08/003 (KHYG) ZAN
    OBST POWER LINES NOT CHARTED 50FT AGL.
    EFFECTIVE: 2512170000-PERM.
    LOC: NEAR APCH END RWY 01.
    `,
}
